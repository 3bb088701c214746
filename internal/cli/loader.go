package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/edmsql/internal/binding"
	"github.com/roach88/edmsql/internal/queryir"
)

// LoadError represents an error that occurred while loading a catalog or
// a request document.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadCatalog loads a binding catalog from a YAML file, a CUE file or a
// CUE package directory.
func LoadCatalog(path string) (*binding.Catalog, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeConfig, Message: "no catalog configured"}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "catalog not found"}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "error accessing catalog", Err: err}
	}
	cat, err := binding.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "loading catalog", Err: err}
	}
	return cat, nil
}

// LoadRequest reads a YAML request document from path, or from stdin when
// path is "-".
func LoadRequest(path string, stdin io.Reader) (*queryir.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "request not found"}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "reading request", Err: err}
	}

	req, err := queryir.ParseRequest(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidRequest, Path: path, Message: "decoding request", Err: err}
	}
	return req, nil
}
