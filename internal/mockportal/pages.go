package mockportal

import "html/template"

const hiddenFields = `
<input type="hidden" name="AUTHTYPE" value="">
<input type="hidden" name="HiddenURI" value="https://portal.nap.gsic.titech.ac.jp/GetAccess/ResourceList">
<input type="hidden" name="Template" value="{{.Template}}">
<input type="hidden" name="AUTHMETHOD" value="{{.AuthMethod}}">
<input type="hidden" name="pageGenTime" value="{{.PageGenTime}}">
<input type="hidden" name="LOCALE" value="ja_JP">
<input type="hidden" name="CSRFFormToken" value="{{.CSRFToken}}">
`

// common is what every form page carries back to the server.
type common struct {
	Template    string
	AuthMethod  string
	PageGenTime int64
	CSRFToken   string
	Error       string
}

type passwordPage struct {
	common
}

type otpPage struct {
	common
	Totp    bool
	Options []string
}

type matrixCell struct {
	Label string
	Field string
}

type matrixPage struct {
	common
	Cells      []matrixCell
	SelectName string
}

var passwordTemplate = template.Must(template.New("password").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="UTF-8">
<title>Titech Portal</title>
</head>
<body>
<form name="login" method="post" action="/GetAccess/Login">
<table class="login">
<tr><th colspan="2">Please input your account &amp; password.</th></tr>
{{if .Error}}<tr><td colspan="2" class="error">{{.Error}}</td></tr>{{end}}
<tr><td>Account</td><td><input type="text" name="usr_name" value="" size="20"></td></tr>
<tr><td>Password</td><td><input type="password" name="usr_password" value="" size="20"></td></tr>
<tr><td colspan="2"><input type="submit" name="OK" value="    OK    "></td></tr>
</table>
` + hiddenFields + `</form>
</body>
</html>
`))

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="UTF-8">
<title>Titech Portal</title>
</head>
<body>
<form name="login" method="post" action="/GetAccess/Login">
<table class="login">
{{if .Totp}}<tr><th colspan="2">Token Authentication</th></tr>
<tr><td>Token</td><td><input type="password" name="message4" value="" size="8"></td></tr>
{{else}}<tr><th colspan="2">Select Label for OTP</th></tr>
{{end}}{{if .Error}}<tr><td colspan="2" class="error">{{.Error}}</td></tr>{{end}}
<tr><td>Method</td><td><select name="message3">
{{range .Options}}<option value="{{.}}">{{.}}</option>
{{end}}</select></td></tr>
<tr><td colspan="2"><input type="submit" name="OK" value="    OK    "></td></tr>
</table>
` + hiddenFields + `</form>
</body>
</html>
`))

var matrixTemplate = template.Must(template.New("matrix").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="UTF-8">
<title>Titech Portal</title>
</head>
<body>
<form name="login" method="post" action="/GetAccess/Login">
<table class="login">
<tr><th colspan="2">Matrix Authentication</th></tr>
{{range .Cells}}<tr><th align="left">{{.Label}}</th><td><input type="password" name="{{.Field}}" value="" size="8"></td></tr>
{{end}}<tr><td>Next time</td><td><select name="{{.SelectName}}">
<option value="OTPAuthOption">OTPAuthOption</option>
<option value="NoOtherIGAuthOption">NoOtherIGAuthOption</option>
</select></td></tr>
<tr><td colspan="2"><input type="submit" name="OK" value="    OK    "></td></tr>
</table>
` + hiddenFields + `</form>
</body>
</html>
`))

var failureTemplate = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="UTF-8">
<title>Titech Portal</title>
</head>
<body>
<h2>Authentication failed</h2>
<p>{{.}}</p>
<a href="/GetAccess/Login?Template=userpass_key&amp;AUTHMETHOD=UserPassword">Back</a>
</body>
</html>
`))

var resourceListTemplate = template.Must(template.New("resource_list").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="UTF-8">
<title>リソース メニュー</title>
</head>
<body>
<h1>リソース メニュー</h1>
<ul>
<li><a href="https://www.ocw.titech.ac.jp/">OCW</a></li>
<li><a href="https://t2schola.titech.ac.jp/">T2SCHOLA</a></li>
</ul>
<p>{{.}}</p>
</body>
</html>
`))
