package rest

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/folioworks/portfolio/internal/present/rest/presenter"
)

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sign in</title>
</head>
<body>
<form id="login">
  <label for="password">Password</label>
  <input id="password" name="password" type="password" autocomplete="current-password" autofocus required>
  <button type="submit">Enter</button>
  <p id="error" role="alert"></p>
</form>
<script>
const from = {{.From}};
document.getElementById("login").addEventListener("submit", async (e) => {
  e.preventDefault();
  const res = await fetch("/api/auth", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({password: document.getElementById("password").value}),
  });
  if (res.ok) {
    window.location.assign(from);
    return;
  }
  const body = await res.json().catch(() => ({}));
  document.getElementById("error").textContent = body.error || "Sign in failed";
});
</script>
</body>
</html>
`))

// safeRedirect keeps redirects on this site.
func safeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	return from
}

func (h *Handler) handleLoginPage(c echo.Context) error {
	var buf bytes.Buffer
	err := loginPage.Execute(&buf, struct{ From string }{From: safeRedirect(c.QueryParam("from"))})
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
