// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusBadRequest,
	}
}

// Forbidden convenience method to create http forbidden error.
func Forbidden(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusForbidden,
	}
}

// StatusOf maps a contract error to the status code responded for it.
func StatusOf(err error) int {
	if !reverts.IsRevertErr(err) {
		return http.StatusInternalServerError
	}
	switch reverts.KindOf(err) {
	case reverts.KindValidation:
		return http.StatusBadRequest
	case reverts.KindUnauthorized:
		return http.StatusForbidden
	case reverts.KindNotFound:
		return http.StatusNotFound
	case reverts.KindArithmetic, reverts.KindExternal:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the body of a failed request caused by a contract error.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HandlerFunc like http.HandlerFunc, bu it returns an error.
// If the returned error is httpError type, httpError.status will be responded.
// Contract errors are responded with the status of their kind,
// otherwise http.StatusInternalServerError responded.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if errors.As(err, &he) {
			if he.cause != nil {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				w.WriteHeader(he.status)
			}
			return
		}
		if reverts.IsRevertErr(err) {
			w.Header().Set("Content-Type", JSONContentType)
			w.WriteHeader(StatusOf(err))
			_ = json.NewEncoder(w).Encode(&ErrorResponse{
				Kind:    reverts.KindOf(err).String(),
				Message: err.Error(),
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// M shortcut for type map[string]any.
type M map[string]any

// AddressVar parses the address of the named path variable.
func AddressVar(req *http.Request, name string) (common.Address, error) {
	addr, err := common.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return common.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// Uint64Query parses an optional uint64 query parameter. It returns nil if absent.
func Uint64Query(req *http.Request, name string) (*uint64, error) {
	s := req.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, BadRequest(errors.WithMessage(err, name))
	}
	return &v, nil
}

// BoolQuery parses an optional bool query parameter, false if absent.
func BoolQuery(req *http.Request, name string) (bool, error) {
	s := req.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}
