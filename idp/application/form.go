// Package application validates the IDP application form, packages it with
// the signature and attachments into a multipart body and submits it.
package application

import (
	"net/mail"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ogen-go/ogen/validate"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/pricing"
)

var logger = logrus.WithField("component", "idp.application")

// VehicleClasses are the permit categories an applicant may request.
var VehicleClasses = []string{"A", "B", "C", "D", "E"}

// Form is everything the applicant enters, except the signature which is
// owned by signature.Pad.
type Form struct {
	Email            string `yaml:"email"`
	FirstName        string `yaml:"firstName"`
	LastName         string `yaml:"lastName"`
	ResidenceAddress string `yaml:"residenceAddress"`
	CityAndState     string `yaml:"cityAndState"`
	ZipCode          string `yaml:"zipCode"`
	Country          string `yaml:"country"`
	DateOfBirth      string `yaml:"dateOfBirth"`
	CountryOfBirth   string `yaml:"countryOfBirth"`
	Gender           string `yaml:"gender"`
	EyeColor         string `yaml:"eyeColor"`
	Height           string `yaml:"height"`

	VehicleTypes                 []string `yaml:"vehicleTypes"`
	NationalDriverLicense        string   `yaml:"nationalDriverLicense"`
	NationalDriverLicenseCountry string   `yaml:"nationalDriverLicenseCountry"`
	IDPPeriod                    string   `yaml:"idpPeriod"`

	ShippingAddress   string `yaml:"shippingAddress"`
	ApartmentNumber   string `yaml:"apartmentNumber"`
	ShippingCityState string `yaml:"shippingCityState"`
	ShippingZipCode   string `yaml:"shippingZipCode"`
	ShippingCountry   string `yaml:"shippingCountry"`

	Phone              string `yaml:"phone"`
	Suggestion         string `yaml:"suggestion"`
	AcceptConditions   bool   `yaml:"acceptConditions"`
	ReceiveInformation bool   `yaml:"receiveInformation"`

	Photo   *idp.Attachment `yaml:"-"`
	License *idp.Attachment `yaml:"-"`
}

type field struct {
	name     string
	value    string
	required bool
}

// textFields lists the text parts in the order they are sent.
func (f *Form) textFields() []field {
	return []field{
		{"email", f.Email, true},
		{"firstName", f.FirstName, true},
		{"lastName", f.LastName, true},
		{"residenceAddress", f.ResidenceAddress, true},
		{"cityAndState", f.CityAndState, true},
		{"zipCode", f.ZipCode, true},
		{"country", f.Country, true},
		{"dateOfBirth", f.DateOfBirth, true},
		{"countryOfBirth", f.CountryOfBirth, true},
		{"gender", f.Gender, true},
		{"eyeColor", f.EyeColor, true},
		{"height", f.Height, true},
		{"nationalDriverLicense", f.NationalDriverLicense, true},
		{"nationalDriverLicenseCountry", f.NationalDriverLicenseCountry, true},
		{"idpPeriod", f.IDPPeriod, true},
		{"shippingAddress", f.ShippingAddress, true},
		{"apartmentNumber", f.ApartmentNumber, false},
		{"shippingCityState", f.ShippingCityState, true},
		{"shippingZipCode", f.ShippingZipCode, true},
		{"shippingCountry", f.ShippingCountry, true},
		{"phone", f.Phone, true},
		{"suggestion", f.Suggestion, false},
	}
}

// Validate checks the form the way the application page does before anything
// is sent. All problems are reported together in a validate.Error wrapped in
// *idp.ValidationError.
func (f *Form) Validate() error {
	var failed []validate.FieldError
	add := func(name string, err error) {
		failed = append(failed, validate.FieldError{Name: name, Error: err})
	}

	for _, fd := range f.textFields() {
		if fd.required && strings.TrimSpace(fd.value) == "" {
			add(fd.name, validate.ErrFieldRequired)
		}
	}

	if f.Email != "" {
		// a bare address only, no display name or angle brackets
		if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
			add("email", errors.Errorf("invalid email address %q", f.Email))
		}
	}

	if err := checkVehicleTypes(f.VehicleTypes); err != nil {
		add("vehicleTypes", err)
	}

	if f.IDPPeriod != "" {
		if _, err := pricing.Lookup(f.IDPPeriod); err != nil {
			add("idpPeriod", err)
		}
	}

	if !f.AcceptConditions {
		add("acceptConditions", errors.New("terms and conditions must be accepted"))
	}

	for name, att := range map[string]*idp.Attachment{"photo": f.Photo, "license": f.License} {
		if err := att.Check(name); err != nil {
			var ve *idp.ValidationError
			if errors.As(err, &ve) {
				err = ve.Err
			}
			add(name, err)
		}
	}

	if len(failed) == 0 {
		return nil
	}
	sortFieldErrors(failed)
	logger.WithField("fields", len(failed)).Debug("application form rejected")
	return &idp.ValidationError{Field: failed[0].Name, Err: &validate.Error{Fields: failed}}
}

func checkVehicleTypes(types []string) error {
	if len(types) == 0 {
		return errors.New("select at least one vehicle type")
	}
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		if !isVehicleClass(t) {
			return errors.Errorf("unknown vehicle type %q", t)
		}
		if seen[t] {
			return errors.Errorf("vehicle type %q selected twice", t)
		}
		seen[t] = true
	}
	return nil
}

func isVehicleClass(t string) bool {
	for _, c := range VehicleClasses {
		if c == t {
			return true
		}
	}
	return false
}

// sortFieldErrors orders errors by the position of the field on the form.
func sortFieldErrors(errs []validate.FieldError) {
	order := make(map[string]int, len(formOrder))
	for i, name := range formOrder {
		order[name] = i
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return order[errs[i].Name] < order[errs[j].Name]
	})
}

var formOrder = []string{
	"email", "firstName", "lastName", "residenceAddress", "cityAndState", "zipCode",
	"country", "dateOfBirth", "countryOfBirth", "gender", "eyeColor", "height",
	"vehicleTypes", "nationalDriverLicense", "nationalDriverLicenseCountry", "idpPeriod",
	"shippingAddress", "apartmentNumber", "shippingCityState", "shippingZipCode",
	"shippingCountry", "phone", "suggestion", "acceptConditions", "receiveInformation",
	"photo", "license",
}
