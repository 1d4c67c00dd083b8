// SPDX-License-Identifier: MPL-2.0

//go:build !windows

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
		{err: syscall.ENOSPC, want: true},
		{err: syscall.EMFILE, want: true},
		{err: syscall.ENFILE, want: true},
		{err: fmt.Errorf("inotify_add_watch: %w", syscall.ENOSPC), want: true},
		{err: syscall.EPERM, want: false},
		{err: syscall.EACCES, want: false},
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
