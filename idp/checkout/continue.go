package checkout

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/alapierre/go-idp-client/png"
)

// ContinueURL builds the link that reopens checkout for applicationID on the
// site at siteURL, e.g. https://example.org/checkout?application_id=42.
func ContinueURL(siteURL string, applicationID int64) (string, error) {
	if applicationID <= 0 {
		return "", errors.Errorf("invalid application id %d", applicationID)
	}
	u, err := url.Parse(siteURL)
	if err != nil {
		return "", errors.Wrap(err, "parse site url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("site url must be http or https, got %q", siteURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/checkout"
	q := u.Query()
	q.Set("application_id", strconv.FormatInt(applicationID, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ContinueQR renders ContinueURL as a PNG QR code.
func ContinueQR(siteURL string, applicationID int64) (string, []byte, error) {
	link, err := ContinueURL(siteURL, applicationID)
	if err != nil {
		return "", nil, err
	}
	data, err := png.Qr(link)
	if err != nil {
		return "", nil, errors.Wrap(err, "render continuation qr code")
	}
	return link, data, nil
}
