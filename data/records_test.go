package data

import (
	"testing"
	"time"
)

func TestFileMode_String(t *testing.T) {
	tests := map[FileMode]string{
		DefaultFileMode: "-rw-r--r--",
		DefaultDirMode:  "drwxr-xr-x",
		ModeDir:         "d---------",
		0700:            "-rwx------",
	}
	for mode, want := range tests {
		if got := mode.String(); got != want {
			t.Errorf("FileMode(%o).String() = %q, expected %q", uint32(mode), got, want)
		}
	}
}

func TestShare_Expired(t *testing.T) {
	now := time.Now()

	forever := NewShare("owner", "/", 0)
	if forever.ExpiresAt != nil || forever.Expired(now.Add(24*365*time.Hour)) {
		t.Error("expected a zero ttl link to never expire")
	}

	hour := NewShare("owner", "/", time.Hour)
	if hour.Expired(now) {
		t.Error("expected fresh link to be valid")
	}
	if !hour.Expired(*hour.ExpiresAt) {
		t.Error("expected link to expire exactly at ExpiresAt")
	}
	if hour.Token == forever.Token {
		t.Error("expected unique tokens")
	}
}

func TestUsage(t *testing.T) {
	u := Usage{Used: 25, Total: 100}
	if u.Percent() != 25 || u.Remaining() != 75 {
		t.Errorf("unexpected usage math %v %d", u.Percent(), u.Remaining())
	}

	over := Usage{Used: 150, Total: 100}
	if over.Remaining() != 0 {
		t.Errorf("expected no remaining bytes, got %d", over.Remaining())
	}

	unlimited := Usage{Used: 150}
	if unlimited.Percent() != 0 || unlimited.Remaining() != 0 {
		t.Errorf("unexpected unlimited usage %v %d", unlimited.Percent(), unlimited.Remaining())
	}
}

func TestNewEntry(t *testing.T) {
	if e := NewEntry("/", DefaultDirMode, 0, time.Time{}); e.Name != "/" || !e.IsDir() {
		t.Errorf("unexpected root entry %+v", e)
	}
	if e := NewEntry("/docs/a.txt", DefaultFileMode, 3, time.Time{}); e.Name != "a.txt" || e.IsDir() {
		t.Errorf("unexpected entry %+v", e)
	}
}
