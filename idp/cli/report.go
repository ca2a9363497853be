package cli

import (
	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/util"
)

const submittedReport = `Application {{.Summary.ApplicationID}} submitted for {{.Summary.CustomerName}} <{{.Summary.Email}}>
IDP period: {{.Summary.IDPPeriod}}
{{- if .Link}}
Continue to checkout: {{.Link}}
{{- end}}
`

const summaryReport = `Application: {{.ApplicationID}}
Name:        {{.CustomerName}}
Email:       {{.Email}}
IDP period:  {{.IDPPeriod}}
`

const priceReport = `{{range .}}{{printf "%-8s" .Period}} {{printf "%-8s" .Label}} price {{.Price.StringFixed 2}}  processing {{.Processing.StringFixed 2}}  total {{.Total.StringFixed 2}}
{{end}}`

const verifiedReport = `Payment confirmed.
{{- with .}}
Application ID:  #{{.ID}}
Applicant Name:  {{.FirstName}} {{.LastName}}
Email:           {{.Email}}
Payment Status:  {{upper .PaymentStatus}}
{{- end}}
`

func (a *app) render(tpl string, model any) error {
	out, err := util.MergeTemplate(tpl, model)
	if err != nil {
		return err
	}
	_, err = a.out.Write(out)
	return err
}

func userMessage(err error) string {
	return idp.UserMessage(err)
}
