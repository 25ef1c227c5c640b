package portal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjectCredentials(t *testing.T) {
	inputs, result := InjectCredentials(passwordPageInputs, "00B00000", "passw0rd&")
	require.Equal(t, INJECT_COMPLETE, result)
	require.Len(t, inputs, len(passwordPageInputs))

	require.Equal(t, "00B00000", inputs[0].Value)
	require.Equal(t, "passw0rd&", inputs[1].Value)
	for i := 2; i < len(inputs); i++ {
		require.Equal(t, passwordPageInputs[i], inputs[i])
	}

	// the scraped inputs are not modified
	require.Equal(t, "", passwordPageInputs[0].Value)
}

func TestInjectCredentialsDrift(t *testing.T) {
	hiddenOnly := []Input{
		{Name: "CSRFFormToken", Kind: INPUT_HIDDEN, Value: "token"},
	}
	inputs, result := InjectCredentials(hiddenOnly, "00B00000", "passw0rd&")
	require.Equal(t, INJECT_NOT_FOUND, result)
	require.Equal(t, hiddenOnly, inputs)

	textOnly := []Input{
		{Name: "usr_name", Kind: INPUT_TEXT},
		{Name: "CSRFFormToken", Kind: INPUT_HIDDEN, Value: "token"},
	}
	inputs, result = InjectCredentials(textOnly, "00B00000", "passw0rd&")
	require.Equal(t, INJECT_PARTIAL, result)
	require.Equal(t, "00B00000", inputs[0].Value)
	require.Equal(t, "token", inputs[1].Value)
}

func TestSelectOtpMethod(t *testing.T) {
	form, err := ExtractForm(otpSelectPageHtml)
	require.NoError(t, err)

	selects, err := SelectOtpMethod(form.Selects)
	require.NoError(t, err)
	selected, ok := selects[0].Selected()
	require.True(t, ok)
	require.Equal(t, OptionGridAuth, selected)

	_, ok = form.Selects[0].Selected()
	require.False(t, ok)

	_, err = SelectOtpMethod([]Select{NewSelect("message3", []string{"OTPAuthOption"})})
	require.ErrorIs(t, err, ErrNoMatrixcodeOption)
}

func TestChoose(t *testing.T) {
	sel := NewSelect("message3", []string{"OTPAuthOption", "GridAuthOption"})
	require.True(t, sel.Choose("GridAuthOption"))
	require.False(t, sel.Choose("NoSuchOption"))

	selected, ok := sel.Selected()
	require.True(t, ok)
	require.Equal(t, "GridAuthOption", selected)
}

func TestInjectMatrix(t *testing.T) {
	form, err := ExtractForm(matrixCodePageHtml)
	require.NoError(t, err)

	secrets := map[Matrix]string{D2: "a", E2: "b", I6: "c"}
	injected, result := InjectMatrix(form, []Matrix{D2, E2, I6}, secrets)
	require.Equal(t, INJECT_COMPLETE, result)

	values := map[string]string{}
	for _, in := range injected.Inputs {
		values[in.Name] = in.Value
	}
	require.Equal(t, "a", values["message3"])
	require.Equal(t, "b", values["message4"])
	require.Equal(t, "c", values["message5"])
	require.Equal(t, "CSRFFormTokenValue", values["CSRFFormToken"])

	selected, ok := injected.Selects[0].Selected()
	require.True(t, ok)
	require.Equal(t, OptionNoOtherIGAuth, selected)

	// the scraped form is left alone
	_, ok = form.Selects[0].Selected()
	require.False(t, ok)
	require.Equal(t, "", form.Inputs[0].Value)
}

func TestInjectMatrixFewerCells(t *testing.T) {
	form, err := ExtractForm(matrixCodePageHtml)
	require.NoError(t, err)

	injected, result := InjectMatrix(form, []Matrix{D2}, map[Matrix]string{D2: "a"})
	require.Equal(t, INJECT_COMPLETE, result)

	var passwords []string
	for _, in := range injected.Inputs {
		if in.Kind == INPUT_PASSWORD {
			passwords = append(passwords, in.Value)
		}
	}
	require.Equal(t, []string{"a", "", ""}, passwords)
}

func TestInjectMatrixMoreCellsThanFields(t *testing.T) {
	form := Form{Inputs: []Input{{Name: "message3", Kind: INPUT_PASSWORD}}}
	injected, result := InjectMatrix(form, []Matrix{D2, E2}, map[Matrix]string{D2: "a", E2: "b"})
	require.Equal(t, INJECT_PARTIAL, result)
	require.Equal(t, "a", injected.Inputs[0].Value)
}

func TestInjectMatrixSkipped(t *testing.T) {
	form, err := ExtractForm(matrixCodePageHtml)
	require.NoError(t, err)

	injected, result := InjectMatrix(form, nil, nil)
	require.Equal(t, INJECT_SKIPPED, result)
	require.Equal(t, form.Inputs, injected.Inputs)
}
