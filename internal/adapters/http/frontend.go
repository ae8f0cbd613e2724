package httpadapter

import (
	"crypto/subtle"
	"net/http"
)

func credentialsMatch(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (rt *Router) classifierPage(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, classifierPageHTML)
}

func (rt *Router) recommenderPage(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, recommenderPageHTML)
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

const classifierPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Climate Exposure Check</title>
<style>
body { font-family: sans-serif; max-width: 42rem; margin: 3rem auto; padding: 0 1rem; }
.result { margin-top: 1.5rem; padding: 1rem; border: 1px solid #ccc; border-radius: 4px; display: none; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>Climate Exposure Check</h1>
<p>Upload a contract (.pdf, .docx or .txt) to estimate its climate exposure.</p>
<form id="upload-form">
  <input type="file" name="file" required>
  <button type="submit">Analyze</button>
</form>
<div id="result" class="result"></div>
<script>
document.getElementById('upload-form').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const box = document.getElementById('result');
  box.style.display = 'block';
  box.textContent = 'Analyzing…';
  const data = new FormData(ev.target);
  try {
    const resp = await fetch('/process', { method: 'POST', body: data });
    const body = await resp.json();
    if (!resp.ok) {
      box.innerHTML = '<span class="error">' + (body.error || resp.statusText) + '</span>';
      return;
    }
    box.innerHTML = 'Classification: <strong>' + body.classification + '</strong>' +
      '<br><a href="' + body.highlighted_output_url + '" target="_blank">View highlighted contract</a>';
  } catch (err) {
    box.innerHTML = '<span class="error">' + err + '</span>';
  }
});
</script>
</body>
</html>
`

const recommenderPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Clause Recommendations</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 3rem auto; padding: 0 1rem; }
.result { margin-top: 1.5rem; display: none; }
.clause { padding: 1rem; border: 1px solid #ccc; border-radius: 4px; margin-bottom: 1rem; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>Clause Recommendations</h1>
<p>Upload a contract to get model clause suggestions from the corpus.</p>
<form id="upload-form">
  <input type="file" name="file" required>
  <button type="submit">Find clauses</button>
</form>
<div id="result" class="result"></div>
<script>
document.getElementById('upload-form').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const box = document.getElementById('result');
  box.style.display = 'block';
  box.textContent = 'Searching…';
  const data = new FormData(ev.target);
  try {
    const resp = await fetch('/find_clauses', { method: 'POST', body: data });
    const body = await resp.json();
    if (!resp.ok) {
      box.innerHTML = '<span class="error">' + (body.error || resp.statusText) + '</span>';
      return;
    }
    if (!body.matches.length) {
      box.textContent = 'No suitable clauses found.';
      return;
    }
    box.innerHTML = body.matches.map((m) =>
      '<div class="clause"><strong>' + m.child_name + '</strong>' +
      (m.clause_url ? ' · <a href="' + m.clause_url + '" target="_blank">source</a>' : '') +
      '<p>' + m.reason + '</p>' +
      (m.emissions_sources.length ? '<p>Emissions sources: ' + m.emissions_sources.join(', ') + '</p>' : '') +
      '</div>').join('');
  } catch (err) {
    box.innerHTML = '<span class="error">' + err + '</span>';
  }
});
</script>
</body>
</html>
`
