package portal

const (
	OptionGridAuth      = "GridAuthOption"
	OptionNoOtherIGAuth = "NoOtherIGAuthOption"
)

// InjectResult tells the caller how much of an injection actually landed in
// the form, since fields are matched by position and kind and a change in
// the portal markup would otherwise go unnoticed.
type InjectResult int

const (
	// every value found a field
	INJECT_COMPLETE InjectResult = iota
	// some values found a field, others did not
	INJECT_PARTIAL
	// no value found a field, the form is unchanged
	INJECT_NOT_FOUND
	// there was nothing to inject, the form is unchanged
	INJECT_SKIPPED
)

func (r InjectResult) String() string {
	switch r {
	case INJECT_COMPLETE:
		return "complete"
	case INJECT_PARTIAL:
		return "partial"
	case INJECT_NOT_FOUND:
		return "not found"
	case INJECT_SKIPPED:
		return "skipped"
	default:
		return "unknown"
	}
}

func injectResult(found, wanted int) InjectResult {
	switch {
	case wanted == 0:
		return INJECT_SKIPPED
	case found == 0:
		return INJECT_NOT_FOUND
	case found < wanted:
		return INJECT_PARTIAL
	default:
		return INJECT_COMPLETE
	}
}

// InjectCredentials sets the first text field to the username and the first
// password field to the password. Every other field keeps its scraped value,
// the hidden fields carry the CSRF token and must go back untouched.
func InjectCredentials(inputs []Input, username, password string) ([]Input, InjectResult) {
	out := make([]Input, len(inputs))
	copy(out, inputs)

	usernameSet := false
	passwordSet := false
	for i := range out {
		switch {
		case out[i].Kind == INPUT_TEXT && !usernameSet:
			out[i].Value = username
			usernameSet = true
		case out[i].Kind == INPUT_PASSWORD && !passwordSet:
			out[i].Value = password
			passwordSet = true
		}
	}

	found := 0
	if usernameSet {
		found++
	}
	if passwordSet {
		found++
	}
	return out, injectResult(found, 2)
}

// SelectOtpMethod chooses matrix authentication on every select that offers it.
func SelectOtpMethod(selects []Select) ([]Select, error) {
	out := make([]Select, len(selects))
	copy(out, selects)

	offered := false
	for i := range out {
		if out[i].Choose(OptionGridAuth) {
			offered = true
		}
	}
	if !offered {
		return out, ErrNoMatrixcodeOption
	}
	return out, nil
}

// InjectMatrix answers the n-th challenged cell with the n-th password field
// of the form. Password fields past the last cell are left alone, and cells
// without a secret are answered with "". When `matrices` is empty nothing is
// injected at all.
//
// Any select offering NoOtherIGAuthOption chooses it so that the portal does
// not ask for another factor afterwards.
func InjectMatrix(form Form, matrices []Matrix, secrets map[Matrix]string) (Form, InjectResult) {
	out := form.clone()

	for i := range out.Selects {
		out.Selects[i].Choose(OptionNoOtherIGAuth)
	}

	if len(matrices) == 0 {
		return out, INJECT_SKIPPED
	}

	answers := ResolveMatrices(matrices, secrets)
	index := 0
	for i := range out.Inputs {
		if out.Inputs[i].Kind != INPUT_PASSWORD {
			continue
		}
		if index >= len(answers) {
			break
		}
		out.Inputs[i].Value = answers[index]
		index++
	}

	return out, injectResult(index, len(answers))
}
