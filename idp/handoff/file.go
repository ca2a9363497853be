package handoff

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/alapierre/go-idp-client/idp/mutex"
)

var fileLocks mutex.Keyed[string]

// FileStore persists entries as one JSON object in a file. Writes go to a
// temporary file which is then renamed over the target.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve store path")
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}
	return &FileStore{path: abs}, nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	unlock := fileLocks.Lock(f.path)
	defer unlock()

	data, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *FileStore) Put(_ context.Context, entries map[string]string) error {
	unlock := fileLocks.Lock(f.path)
	defer unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	for k, v := range entries {
		data[k] = v
	}
	return f.save(data)
}

func (f *FileStore) Delete(_ context.Context, keys ...string) error {
	unlock := fileLocks.Lock(f.path)
	defer unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	if len(data) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "remove store file")
		}
		return nil
	}
	return f.save(data)
}

func (f *FileStore) load() (map[string]string, error) {
	out := make(map[string]string)
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read store file")
	}
	if len(raw) == 0 {
		return out, nil
	}
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Str()
		if err != nil {
			return errors.Wrapf(err, "value of %q", key)
		}
		out[key] = v
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "decode store file %s", f.path)
	}
	return out, nil
}

func (f *FileStore) save(data map[string]string) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var e jx.Encoder
	e.SetIdent(2)
	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		e.Str(data[k])
	}
	e.ObjEnd()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".handoff-*")
	if err != nil {
		return errors.Wrap(err, "create temp store file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(e.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp store file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp store file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "replace store file")
	}
	return nil
}
