// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := deckerr.New(
		deckerr.CodeBoardPoolNotFound,
		"unknown scrape pool",
		deckerr.FieldPool("node-exporter"),
		deckerr.Field("page", 3),
	)

	require.Error(t, err)
	assert.Equal(t, deckerr.CodeBoardPoolNotFound, deckerr.CodeOf(err))
	assert.True(t, deckerr.HasCode(err, deckerr.CodeBoardPoolNotFound))

	fields := deckerr.FieldsOf(err)
	assert.Equal(t, "node-exporter", fields["pool"])
	assert.Equal(t, 3, fields["page"])
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := deckerr.Errorf(deckerr.CodeUpstreamTargetsFetchFailure, "fetching targets for pool %s: status %d", "kubelet", 502)
	require.Error(t, err)
	assert.Equal(t, deckerr.CodeUpstreamTargetsFetchFailure, deckerr.CodeOf(err))
	assert.Contains(t, err.Error(), "fetching targets for pool kubelet: status 502")
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := deckerr.Errorf(deckerr.CodeUpstreamPoolsFetchFailure, "listing pools: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, deckerr.CodeUpstreamPoolsFetchFailure, deckerr.CodeOf(err))
}

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("row missing")
	err := deckerr.Wrap(
		root,
		deckerr.CodeStateSessionNotFound,
		"loading ui state",
		deckerr.FieldSessionID("sess-42"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, deckerr.CodeStateSessionNotFound, deckerr.CodeOf(err))
	assert.True(t, deckerr.IsNotFound(err))
	assert.Equal(t, "sess-42", deckerr.FieldsOf(err)["session_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, deckerr.Wrap(nil, deckerr.CodeStateBackendFailure, "ignored"))
	assert.NoError(t, deckerr.Wrapf(nil, deckerr.CodeStateBackendFailure, "ignored %d", 1))
	assert.NoError(t, deckerr.With(nil, deckerr.Field("k", "v")))
}

func TestClassificationPredicates(t *testing.T) {
	tests := []struct {
		name  string
		code  deckerr.Code
		check func(error) bool
	}{
		{"not found", deckerr.CodeStateSessionNotFound, deckerr.IsNotFound},
		{"invalid input", deckerr.CodeStateInvalidInput, deckerr.IsInvalidInput},
		{"invalid value", deckerr.CodeConfigValidateInvalidValue, deckerr.IsInvalidInput},
		{"unauthorized", deckerr.CodeServerAuthUnauthorized, deckerr.IsUnauthorized},
		{"forbidden", deckerr.CodeServerAuthForbidden, deckerr.IsUnauthorized},
		{"upstream failure", deckerr.CodeUpstreamTargetsFetchFailure, deckerr.IsUpstreamFailure},
		{"breaker open", deckerr.CodeUpstreamBreakerOpen, deckerr.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := deckerr.New(tt.code, "boom")
			assert.True(t, tt.check(err))
		})
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code deckerr.Code
		want int
	}{
		{deckerr.CodeBoardPoolNotFound, http.StatusNotFound},
		{deckerr.CodeBoardRequestInvalid, http.StatusBadRequest},
		{deckerr.CodeServerAuthUnauthorized, http.StatusUnauthorized},
		{deckerr.CodeServerAuthForbidden, http.StatusForbidden},
		{deckerr.CodeUpstreamBreakerOpen, http.StatusServiceUnavailable},
		{deckerr.CodeUpstreamTargetsFetchFailure, http.StatusBadGateway},
		{deckerr.CodeServerInternalFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := deckerr.New(tt.code, "boom")
			assert.Equal(t, tt.want, deckerr.HTTPStatus(err))
		})
	}
}

func TestCodeOfPlainErrorIsEmpty(t *testing.T) {
	assert.Equal(t, deckerr.Code(""), deckerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, deckerr.Code(""), deckerr.CodeOf(nil))
}

func TestWithKeepsExistingCode(t *testing.T) {
	err := deckerr.New(deckerr.CodeBoardPoolNotFound, "missing")
	err = deckerr.With(err, deckerr.FieldPool("blackbox"))

	assert.Equal(t, deckerr.CodeBoardPoolNotFound, deckerr.CodeOf(err))
	assert.Equal(t, "blackbox", deckerr.FieldsOf(err)["pool"])
}
