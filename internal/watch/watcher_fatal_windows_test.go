// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{err: errnoTooManyOpenFiles, want: true},
		{err: errnoInvalidHandle, want: true},
		{err: errnoNotEnoughMemory, want: true},
		{err: fmt.Errorf("ReadDirectoryChangesW: %w", errnoInvalidHandle), want: true},
		{err: syscall.Errno(5), want: false},
		{err: syscall.Errno(2), want: false},
		{err: fmt.Errorf("queue overflow"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			if got := isFatalFsnotifyError(tt.err); got != tt.want {
				t.Errorf("isFatalFsnotifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
