package portal

import _ "embed"

//go:embed testdata/password_page.html
var passwordPageHtml string

//go:embed testdata/otp_select_page.html
var otpSelectPageHtml string

//go:embed testdata/totp_page.html
var totpPageHtml string

//go:embed testdata/matrix_code_page.html
var matrixCodePageHtml string

//go:embed testdata/resource_list_page.html
var resourceListPageHtml string
