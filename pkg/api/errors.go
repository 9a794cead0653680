// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when the listening address is not host:port
	ErrInvalidAddress = errors.New("invalid listening address")
	// ErrServerAlreadyStarted is returned when routes are registered after the server was started
	ErrServerAlreadyStarted = errors.New("server already started")
)

type ErrCreateOpenapiSchema struct {
	name string
	err  error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to get schema for check %s: %v", e.name, e.err)
}

func (e ErrCreateOpenapiSchema) Unwrap() error {
	return e.err
}
