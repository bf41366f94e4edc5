package api

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// HandleBuilder serves the query builder page.
func (s *Server) HandleBuilder(w http.ResponseWriter, r *http.Request) {
	page := BuilderPage(requestBaseURL(r), s.resolver.Registry().Keys())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		logger.Errorf("rendering builder page: %v", err)
	}
}

// requestBaseURL is the absolute request URL without its query string.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.EscapedPath()
}

// BuilderPage renders a page that lets the user toggle provider keys between
// neutral, included and excluded and copy the resulting query URL template.
func BuilderPage(baseURL string, sources []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sourcesJSON, err := templ.JSONString(sources)
		if err != nil {
			return err
		}
		templateJSON, err := templ.JSONString(baseURL + "?term={term}&reading={reading}")
		if err != nil {
			return err
		}

		parts := []string{
			builderHead,
			`<script>const availableSources = `, sourcesJSON,
			`; const baseApiUrl = `, templateJSON, `;</script>`,
			builderScript,
			builderTail,
		}
		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}

const builderHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>Query Builder</title>
<style>
:root {
  --bg: #1c1b1f; --surface: #2a292e; --surface-variant: #49454f;
  --on-surface: #e6e1e5; --on-surface-variant: #cac4d0;
  --primary: #a88ee8; --on-primary: #381e72;
  --secondary: #ccc2dc; --on-secondary: #332d41;
  --error: #f48a80; --on-error: #601410; --outline: #938f99;
}
* { box-sizing: border-box; margin: 0; padding: 0; }
body {
  font-family: system-ui, -apple-system, "Segoe UI", Roboto, sans-serif;
  background: var(--bg); color: var(--on-surface);
  padding: 20px; line-height: 1.5;
}
.builder {
  background: var(--surface); padding: 24px; border-radius: 16px;
  max-width: 800px; margin: 20px auto; box-shadow: 0 4px 8px rgba(0, 0, 0, 0.2);
}
h1 { font-size: 1.75em; font-weight: 500; margin-bottom: 16px; }
h2 {
  font-size: 1.1em; font-weight: 500; margin: 24px 0 12px;
  color: var(--on-surface-variant); border-bottom: 1px solid var(--surface-variant);
}
.source-list { display: flex; flex-wrap: wrap; gap: 12px; margin-bottom: 8px; }
.source-chip {
  display: inline-flex; align-items: center; padding: 6px 16px 6px 10px;
  border-radius: 999px; border: 1px solid var(--outline);
  color: var(--on-surface-variant); cursor: pointer; user-select: none; font-size: 0.9em;
}
.source-chip .status {
  width: 18px; height: 18px; border-radius: 50%; margin-right: 8px;
  border: 1.5px solid var(--outline);
}
.source-chip[data-state="1"] .status { background: var(--primary); border-color: var(--primary); }
.source-chip[data-state="2"] .status { background: var(--error); border-color: var(--error); }
.info { font-size: 0.85em; color: var(--on-surface-variant); margin-bottom: 20px; }
.controls { display: flex; flex-wrap: wrap; gap: 12px; margin-bottom: 24px; }
button { padding: 10px 20px; border: none; border-radius: 999px; cursor: pointer; font-weight: 500; }
button.filled { background: var(--primary); color: var(--on-primary); }
button.outlined { background: transparent; color: var(--primary); border: 1px solid var(--outline); }
button.error { background: var(--error); color: var(--on-error); }
button.copied { background: var(--secondary); color: var(--on-secondary); }
label { display: block; margin-bottom: 8px; font-size: 0.9em; color: var(--on-surface-variant); }
input[type="text"], textarea {
  width: 100%; padding: 12px 16px; background: var(--surface-variant);
  color: var(--on-surface); border: 1px solid var(--outline); border-radius: 8px; font: inherit;
}
.output { display: flex; align-items: flex-start; gap: 12px; }
</style>
</head>
<body>
<div class="builder">
  <h1>Query Builder</h1>
  <h2>Select Sources</h2>
  <div id="sourceList" class="source-list"></div>
  <p class="info">
    Click sources to cycle state: neutral, include, exclude.<br />
    If no sources are explicitly included, all available sources are used.
  </p>
  <div class="controls">
    <button id="includeAll" class="filled">Include All</button>
    <button id="neutralAll" class="outlined">Neutral All</button>
    <button id="excludeAll" class="error">Exclude All</button>
  </div>
  <label for="regexFilter">Exclude results matching Regex (on display text)</label>
  <input type="text" id="regexFilter" placeholder="e.g. ^TTS" />
  <h2>Query URL</h2>
  <div class="output">
    <textarea id="outputUrl" readonly rows="4"></textarea>
    <button id="copyButton" class="filled">Copy</button>
  </div>
</div>
`

const builderScript = `<script>
document.addEventListener("DOMContentLoaded", () => {
  const states = {};
  availableSources.forEach((s) => { states[s] = 0; });

  const list = document.getElementById("sourceList");
  const regexInput = document.getElementById("regexFilter");
  const output = document.getElementById("outputUrl");
  const copyButton = document.getElementById("copyButton");

  function render() {
    list.innerHTML = "";
    availableSources.forEach((source) => {
      const chip = document.createElement("div");
      chip.className = "source-chip";
      chip.dataset.source = source;
      chip.dataset.state = states[source];
      const status = document.createElement("span");
      status.className = "status";
      chip.appendChild(status);
      chip.appendChild(document.createTextNode(source));
      chip.addEventListener("click", () => {
        states[source] = (states[source] + 1) % 3;
        chip.dataset.state = states[source];
        update();
      });
      list.appendChild(chip);
    });
  }

  function setAll(state) {
    availableSources.forEach((s) => { states[s] = state; });
    render();
    update();
  }

  function generate() {
    const included = availableSources.filter((s) => states[s] === 1);
    const excluded = availableSources.filter((s) => states[s] === 2).map((s) => "-" + s);
    const selection = included.concat(excluded);
    let url = baseApiUrl;
    if (selection.length > 0) {
      url += "&sources=" + selection.join(",");
    }
    const regex = regexInput.value.trim();
    if (regex) {
      url += "&excludeDisplayTextRegex=" + encodeURIComponent(regex);
    }
    return url;
  }

  function update() {
    output.value = generate();
  }

  copyButton.addEventListener("click", async () => {
    if (!output.value) return;
    try {
      await navigator.clipboard.writeText(output.value);
      copyButton.textContent = "Copied!";
      copyButton.classList.add("copied");
      setTimeout(() => {
        copyButton.textContent = "Copy";
        copyButton.classList.remove("copied");
      }, 1500);
    } catch (err) {
      output.select();
    }
  });
  document.getElementById("includeAll").addEventListener("click", () => setAll(1));
  document.getElementById("neutralAll").addEventListener("click", () => setAll(0));
  document.getElementById("excludeAll").addEventListener("click", () => setAll(2));
  regexInput.addEventListener("input", update);

  render();
  update();
});
</script>
`

const builderTail = `</body>
</html>
`
