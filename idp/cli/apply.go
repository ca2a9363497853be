package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/application"
	"github.com/alapierre/go-idp-client/idp/canvas"
	"github.com/alapierre/go-idp-client/idp/checkout"
	"github.com/alapierre/go-idp-client/idp/handoff"
	"github.com/alapierre/go-idp-client/idp/signature"
)

// formFile is the YAML document accepted by "idp apply --form". File
// references are resolved relative to the working directory.
type formFile struct {
	application.Form `yaml:",inline"`

	Photo          string `yaml:"photo"`
	License        string `yaml:"license"`
	Strokes        string `yaml:"strokes"`
	SignatureImage string `yaml:"signatureImage"`
}

func loadFormFile(path string) (*formFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read form")
	}
	var f formFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse form %s", path)
	}
	return &f, nil
}

type applyOptions struct {
	form           string
	photo          string
	license        string
	strokes        string
	signatureImage string
	display        string
	replace        bool
	quiet          bool
}

func applyCmd(a *app) *cobra.Command {
	var o applyOptions
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit an IDP application and hand it off to checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.apply(cmd, &o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.form, "form", "f", "", "application form (YAML)")
	f.StringVar(&o.photo, "photo", "", "passport photo, overrides the form")
	f.StringVar(&o.license, "license", "", "driver license scan, overrides the form")
	f.StringVar(&o.strokes, "strokes", "", "recorded signature strokes (JSON), selects draw mode")
	f.StringVar(&o.signatureImage, "signature-image", "", "signature image, selects upload mode")
	f.StringVar(&o.display, "display", "", "size the strokes were recorded at, WIDTHxHEIGHT")
	f.BoolVar(&o.replace, "replace", false, "replace an application still waiting for checkout")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "do not print progress")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

func (a *app) apply(cmd *cobra.Command, o *applyOptions) error {
	ff, err := loadFormFile(o.form)
	if err != nil {
		return err
	}
	form := &ff.Form
	if err := attach(&form.Photo, first(o.photo, ff.Photo)); err != nil {
		return err
	}
	if err := attach(&form.License, first(o.license, ff.License)); err != nil {
		return err
	}

	pad, err := signature.NewPad()
	if err != nil {
		return err
	}
	strokes := first(o.strokes, ff.Strokes)
	image := first(o.signatureImage, ff.SignatureImage)
	if o.strokes != "" {
		image = ""
	} else if o.signatureImage != "" {
		strokes = ""
	}
	if err := preparePad(pad, strokes, image, o.display); err != nil {
		return err
	}

	ctx := cmd.Context()
	return a.withHandoff(ctx, func(h *handoff.Handoff) error {
		opts := []application.Option{}
		if !o.quiet {
			opts = append(opts, application.WithProgress(func(p application.Progress) {
				a.printf("[%3d%%] %s\n", p.Percent, p.Stage)
			}))
		}
		if o.replace {
			opts = append(opts, application.WithReplacePending())
		}

		summary, err := application.NewSubmitter(a.client(), h, opts...).Submit(ctx, form, pad)
		if err != nil {
			if errors.Is(err, handoff.ErrAlreadyPublished) {
				return errors.Wrap(err, "finish checkout, run \"idp handoff clear\" or pass --replace")
			}
			return err
		}

		link, err := checkout.ContinueURL(a.cfg.SiteURL, summary.ApplicationID)
		if err != nil {
			logger.WithError(err).Warn("cannot build checkout link")
			link = ""
		}
		return a.render(submittedReport, struct {
			Summary *handoff.Summary
			Link    string
		}{summary, link})
	})
}

func preparePad(pad *signature.Pad, strokes, image, display string) error {
	if image != "" {
		if err := pad.SetMode(signature.ModeUpload); err != nil {
			return err
		}
		att, err := idp.LoadAttachment(image)
		if err != nil {
			return err
		}
		return pad.SetUpload(att)
	}
	if strokes == "" {
		// An empty pad is rejected by the submitter with a signature error.
		return nil
	}
	return drawStrokes(pad.Surface(), strokes, display)
}

func drawStrokes(s *canvas.Surface, path, display string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read strokes")
	}
	recorded, err := canvas.DecodeStrokes(data)
	if err != nil {
		return err
	}
	if display != "" {
		w, h, err := parseSize(display)
		if err != nil {
			return err
		}
		s.SetDisplayRect(canvas.Rect{Width: w, Height: h})
	}
	return s.Replay(recorded)
}

// parseSize reads WIDTHxHEIGHT.
func parseSize(v string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(v), "x")
	if !ok {
		return 0, 0, errors.Errorf("invalid size %q, want WIDTHxHEIGHT", v)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil || w <= 0 {
		return 0, 0, errors.Errorf("invalid width in %q", v)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil || h <= 0 {
		return 0, 0, errors.Errorf("invalid height in %q", v)
	}
	return w, h, nil
}

func attach(dst **idp.Attachment, path string) error {
	if path == "" {
		return nil
	}
	att, err := idp.LoadAttachment(path)
	if err != nil {
		return err
	}
	*dst = att
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
