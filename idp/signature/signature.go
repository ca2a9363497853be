// Package signature models where the applicant's signature comes from: drawn
// on the capture surface or uploaded as an image file. Exactly one source
// yields the image bytes that are submitted.
package signature

import (
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/canvas"
)

var logger = logrus.WithField("component", "idp.signature")

// DrawnFileName is the file name of the rasterized signature part.
const DrawnFileName = "signature.png"

type Mode string

const (
	ModeDraw   Mode = "draw"
	ModeUpload Mode = "upload"
)

func (m Mode) Valid() bool {
	return m == ModeDraw || m == ModeUpload
}

// Source is either Drawn or Uploaded.
type Source interface {
	Mode() Mode
	// Attachment returns the image sent as the "signature" multipart part.
	Attachment() *idp.Attachment
	isSource()
}

// Drawn is a signature rasterized from the capture surface.
type Drawn struct {
	PNG []byte
}

func (Drawn) Mode() Mode { return ModeDraw }

func (d Drawn) Attachment() *idp.Attachment {
	return &idp.Attachment{FileName: DrawnFileName, ContentType: "image/png", Data: d.PNG}
}

func (Drawn) isSource() {}

// Uploaded is a signature image file chosen by the user.
type Uploaded struct {
	File *idp.Attachment
}

func (Uploaded) Mode() Mode { return ModeUpload }

func (u Uploaded) Attachment() *idp.Attachment { return u.File }

func (Uploaded) isSource() {}

// Pad ties the capture surface to the selected signature mode.
type Pad struct {
	mode    Mode
	surface *canvas.Surface
	upload  *idp.Attachment
	width   int
	height  int
}

// NewPad returns a pad in draw mode with a blank surface of the default size.
func NewPad() (*Pad, error) {
	return NewPadSize(canvas.DefaultWidth, canvas.DefaultHeight)
}

func NewPadSize(width, height int) (*Pad, error) {
	s, err := canvas.New(width, height)
	if err != nil {
		return nil, err
	}
	return &Pad{mode: ModeDraw, surface: s, width: width, height: height}, nil
}

func (p *Pad) Mode() Mode { return p.mode }

// Surface returns the drawing surface. The returned value is replaced by a
// fresh buffer whenever the mode changes.
func (p *Pad) Surface() *canvas.Surface { return p.surface }

// SetMode switches between drawing and uploading. Any switch re-initializes
// the surface, so strokes drawn before the switch never survive it.
func (p *Pad) SetMode(m Mode) error {
	if !m.Valid() {
		return &idp.ValidationError{Field: "signatureType", Err: errors.Errorf("unknown signature mode %q", m)}
	}
	if err := p.surface.Initialize(p.width, p.height); err != nil {
		return err
	}
	if m == ModeDraw {
		p.upload = nil
	}
	logger.WithField("from", p.mode).WithField("to", m).Debug("signature mode changed")
	p.mode = m
	return nil
}

// SetUpload selects a signature image. The file is checked right away so a
// bad file is reported when it is chosen, not only at submission.
func (p *Pad) SetUpload(file *idp.Attachment) error {
	if p.mode != ModeUpload {
		return &idp.ValidationError{Field: "signatureImage", Err: errors.New("switch to upload mode before choosing a signature file")}
	}
	if err := file.Check("signatureImage"); err != nil {
		return err
	}
	p.upload = file
	return nil
}

// Source validates the selected signature source and returns the image to
// submit. Drawing mode requires a non-blank surface; upload mode requires a
// file. Otherwise the error wraps idp.ErrMissingSignature.
func (p *Pad) Source() (Source, error) {
	switch p.mode {
	case ModeDraw:
		if !p.surface.HasContent() {
			return nil, &idp.ValidationError{Field: "signature", Err: idp.ErrMissingSignature}
		}
		data, err := p.surface.ExportPNG()
		if err != nil {
			return nil, err
		}
		return Drawn{PNG: data}, nil
	case ModeUpload:
		if p.upload == nil || len(p.upload.Data) == 0 {
			return nil, &idp.ValidationError{Field: "signature", Err: idp.ErrMissingSignature}
		}
		return Uploaded{File: p.upload}, nil
	}
	return nil, &idp.ValidationError{Field: "signatureType", Err: errors.Errorf("unknown signature mode %q", p.mode)}
}
