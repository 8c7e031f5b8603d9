package email

import (
	"bytes"
	htmltpl "html/template"
	texttpl "text/template"
)

// CodeVars son las variables del mail de código de segundo factor.
type CodeVars struct {
	AppName   string
	UserEmail string
	Code      string
}

const codeHTML = `<!doctype html>
<html>
  <body style="font-family: sans-serif">
    <p>Hola {{.UserEmail}},</p>
    <p>Tu código de verificación para {{.AppName}} es:</p>
    <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px">{{.Code}}</p>
    <p>Si no intentaste iniciar sesión, ignorá este mensaje.</p>
  </body>
</html>
`

const codeText = `Hola {{.UserEmail}},

Tu código de verificación para {{.AppName}} es: {{.Code}}

Si no intentaste iniciar sesión, ignorá este mensaje.
`

var (
	codeHTMLTpl = htmltpl.Must(htmltpl.New("code_html").Parse(codeHTML))
	codeTextTpl = texttpl.Must(texttpl.New("code_txt").Parse(codeText))
)

// RenderCode renderiza las versiones HTML y texto del mail de código.
func RenderCode(vars CodeVars) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := codeHTMLTpl.Execute(&hb, vars); err != nil {
		return "", "", err
	}
	if err := codeTextTpl.Execute(&tb, vars); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
