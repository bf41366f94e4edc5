package api

import "github.com/rubiojr/yomiaudio/pkg/core"

const audioSourceListType = "audioSourceList"

type AudioSourceListResponse struct {
	Type         string             `json:"type"`
	AudioSources []core.AudioSource `json:"audioSources"`
}
