package http

import (
	"html/template"
	"net/http"
)

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<form id="turn">
  <label>Use case
    <select name="use_case">{{range .UseCases}}<option>{{.}}</option>{{end}}</select>
  </label>
  <label>Provider
    <select name="provider">{{range .Providers}}<option>{{.Name}}</option>{{end}}</select>
  </label>
  <label>Model
    <select name="model">{{range .Providers}}{{$p := .Name}}{{range .Models}}<option data-provider="{{$p}}">{{.}}</option>{{end}}{{end}}</select>
  </label>
  <label>API key <input type="password" name="api_key" /></label>
  <label>Frequency
    <select name="frequency">{{range .Frequencies}}<option>{{.}}</option>{{end}}</select>
  </label>
  <textarea name="input" rows="3" placeholder="Enter your message"></textarea>
  <button type="submit">Send</button>
</form>
<pre id="out"></pre>
<script>
document.getElementById("turn").addEventListener("submit", async (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  const useCase = f.get("use_case");
  const isNews = useCase === "AI News";
  const body = {
    use_case: useCase,
    input: isNews ? f.get("frequency") : f.get("input"),
    provider: f.get("provider"),
    model: f.get("model"),
    api_key: f.get("api_key") || undefined,
  };
  const out = document.getElementById("out");
  out.textContent = "";
  const res = await fetch("/api/chat/stream", {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body)});
  const reader = res.body.getReader();
  const dec = new TextDecoder();
  for (;;) {
    const {value, done} = await reader.read();
    if (done) break;
    for (const chunk of dec.decode(value).split("\n\n")) {
      const line = chunk.split("\n").find((l) => l.startsWith("data: "));
      if (!line) continue;
      const ev = JSON.parse(line.slice(6));
      for (const m of (ev.diff && ev.diff.appended) || []) out.textContent += m.role + ": " + m.content + "\n";
      if (ev.artifact) out.textContent += "saved " + ev.artifact.location + "\n";
      if (ev.error) out.textContent += "error: " + ev.message + "\n";
    }
  }
});
</script>
</body>
</html>
`))

// Form handles GET /: the single-page web form.
func (s *Server) Form(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, s.info); err != nil {
		s.logger.Error("render form", "err", err)
	}
}
