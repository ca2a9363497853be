package util

import (
	"bytes"
	"strings"
	"text/template"
)

// MergeTemplate renders tpl against model. Used for the human readable CLI reports.
func MergeTemplate(tpl string, model any) ([]byte, error) {

	var funcMap = template.FuncMap{
		"upper": strings.ToUpper,
		"join":  strings.Join,
	}

	tmpl, err := template.New("report").Funcs(funcMap).Parse(tpl)
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer

	err = tmpl.Execute(&output, model)
	if err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}
