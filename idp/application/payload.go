package application

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/signature"
)

// Payload is a fully encoded multipart/form-data request body.
type Payload struct {
	contentType string
	data        []byte
}

func (p *Payload) ContentType() string { return p.contentType }

func (p *Payload) Size() int64 { return int64(len(p.data)) }

func (p *Payload) Bytes() []byte { return p.data }

// Body returns a fresh reader over the payload. onRead, when not nil, is
// called after every read with the bytes consumed so far.
func (p *Payload) Body(onRead func(sent, total int64)) *Body {
	return &Body{r: bytes.NewReader(p.data), total: p.Size(), onRead: onRead}
}

// Body counts the bytes the transport pulls from the payload.
type Body struct {
	r      *bytes.Reader
	total  int64
	onRead func(sent, total int64)

	mu   sync.Mutex
	sent int64
}

func (b *Body) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if n > 0 {
		b.mu.Lock()
		b.sent += int64(n)
		sent := b.sent
		b.mu.Unlock()
		if b.onRead != nil {
			b.onRead(sent, b.total)
		}
	}
	return n, err
}

func (b *Body) Close() error { return nil }

func (b *Body) Size() int64 { return b.total }

// Sent is the number of bytes read so far.
func (b *Body) Sent() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

// BuildPayload encodes the form and the signature as the create-application
// request body.
func BuildPayload(f *Form, src signature.Source) (*Payload, error) {
	b := newBuilder()
	if err := b.fields(f, src.Mode()); err != nil {
		return nil, err
	}
	if err := b.signature(src); err != nil {
		return nil, err
	}
	if err := b.files(f); err != nil {
		return nil, err
	}
	return b.finish()
}

type builder struct {
	buf bytes.Buffer
	w   *multipart.Writer
}

func newBuilder() *builder {
	b := &builder{}
	b.w = multipart.NewWriter(&b.buf)
	return b
}

func (b *builder) fields(f *Form, mode signature.Mode) error {
	for _, fd := range f.textFields() {
		if err := b.w.WriteField(fd.name, fd.value); err != nil {
			return errors.Wrapf(err, "write %s", fd.name)
		}
	}

	var e jx.Encoder
	e.ArrStart()
	for _, v := range f.VehicleTypes {
		e.Str(v)
	}
	e.ArrEnd()

	extra := []struct{ name, value string }{
		{"vehicleTypes", e.String()},
		{"acceptConditions", strconv.FormatBool(f.AcceptConditions)},
		{"receiveInformation", strconv.FormatBool(f.ReceiveInformation)},
		{"signatureType", string(mode)},
	}
	for _, fd := range extra {
		if err := b.w.WriteField(fd.name, fd.value); err != nil {
			return errors.Wrapf(err, "write %s", fd.name)
		}
	}
	return nil
}

func (b *builder) signature(src signature.Source) error {
	att := src.Attachment()
	if att == nil || len(att.Data) == 0 {
		return &idp.ValidationError{Field: "signature", Err: idp.ErrMissingSignature}
	}
	return b.attach("signature", att)
}

func (b *builder) files(f *Form) error {
	if err := b.attach("photo", f.Photo); err != nil {
		return err
	}
	return b.attach("license", f.License)
}

func (b *builder) attach(name string, att *idp.Attachment) error {
	if att == nil {
		return nil
	}
	ct := att.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+quoteEscaper.Replace(name)+`"; filename="`+quoteEscaper.Replace(att.FileName)+`"`)
	h.Set("Content-Type", ct)

	pw, err := b.w.CreatePart(h)
	if err != nil {
		return errors.Wrapf(err, "create %s part", name)
	}
	if _, err := pw.Write(att.Data); err != nil {
		return errors.Wrapf(err, "write %s part", name)
	}
	return nil
}

func (b *builder) finish() (*Payload, error) {
	if err := b.w.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart body")
	}
	return &Payload{contentType: b.w.FormDataContentType(), data: b.buf.Bytes()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
