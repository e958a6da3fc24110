/*
 * MIT License
 *
 * Copyright (c) 2026 chatrelay contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package chaterr provides coded, chainable errors for the chat relay server.
//
// Every error carries a numeric Code (similar in spirit to HTTP status codes),
// an optional parent error, and the call site where it was created. Callers
// branch on the code with Is instead of string-matching error messages. The
// wire-level replies (NAME_TAKEN, ERROR: frames) are written by the server's
// handlers directly and are not derived from these codes.
package chaterr

import (
	"errors"
	"fmt"
	"runtime"
)

// Code classifies an Error the way the protocol needs to react to it.
type Code uint16

const (
	// CodeUnknown is the zero value: an error with no protocol meaning.
	CodeUnknown Code = iota
	// CodeNameEmpty classifies a SET_NAME that carries an empty name.
	CodeNameEmpty
	// CodeNameTaken classifies a SET_NAME that collides with a registered
	// name or embeds the Temp_ placeholder substring.
	CodeNameTaken
	// CodeUserNotFound classifies a command naming a user absent from the
	// registry.
	CodeUserNotFound
	// CodeNoActiveChat classifies a CHAT or file frame targeting a pair that
	// is not in the active set.
	CodeNoActiveChat
	// CodeMalformed classifies input that cannot be parsed into its expected
	// fields; tlsconfig returns it for a half-filled certificate/key pair.
	CodeMalformed
	// CodeTransport is returned when a socket read or write fails.
	CodeTransport
	// CodeFrameTooLarge classifies a frame that declares a length above the
	// server's configured ceiling. frame.Read reports that case with a plain
	// error, not with this code.
	CodeFrameTooLarge
)

// Error is a coded, chainable error. It satisfies the standard error
// interface plus errors.Is/errors.As via Unwrap.
type Error interface {
	error
	Code() Code
	Unwrap() error
	// Caller returns "file:line" of the site that constructed the error.
	Caller() string
}

type cerr struct {
	code   Code
	msg    string
	parent error
	caller string
}

// New creates a coded error with no parent.
func New(code Code, msg string) Error {
	return &cerr{code: code, msg: msg, caller: caller(2)}
}

// Wrap creates a coded error that chains to parent. If parent is nil, Wrap
// behaves like New.
func Wrap(code Code, msg string, parent error) Error {
	return &cerr{code: code, msg: msg, parent: parent, caller: caller(2)}
}

func caller(skip int) string {
	if _, file, line, ok := runtime.Caller(skip); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

func (e *cerr) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
	}
	return e.msg
}

func (e *cerr) Code() Code { return e.code }

func (e *cerr) Unwrap() error { return e.parent }

func (e *cerr) Caller() string { return e.caller }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var ce Error
		if errors.As(err, &ce) {
			if ce.Code() == code {
				return true
			}
			err = ce.Unwrap()
			continue
		}
		return false
	}
	return false
}
