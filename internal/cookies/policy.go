// Package cookies decides which cookie file, if any, an extraction runs with.
package cookies

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Policy describes where cookies may come from.
//
// Locally, cookie text sent by the caller is written to a private temporary
// file for the duration of one request. When Serverless is set, caller cookies
// are dropped and the pre-provisioned FixedFile is used if it exists.
type Policy struct {
	Serverless bool
	FixedFile  string
	TempDir    string
}

func noop() {}

// Resolve returns the cookie file to use and a cleanup func that must always
// be called. An empty path means run without cookies.
func (p Policy) Resolve(callerCookies string) (string, func(), error) {
	if p.Serverless {
		if strings.TrimSpace(callerCookies) != "" {
			log.Println("⚠️  caller cookies ignored in serverless mode")
		}
		if p.FixedFile != "" {
			if _, err := os.Stat(p.FixedFile); err == nil {
				return p.FixedFile, noop, nil
			}
		}
		return "", noop, nil
	}

	if strings.TrimSpace(callerCookies) == "" {
		return "", noop, nil
	}

	f, err := os.CreateTemp(p.TempDir, "cookies-*.txt")
	if err != nil {
		return "", noop, fmt.Errorf("create cookie file: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.WriteString(callerCookies); err != nil {
		f.Close()
		cleanup()
		return "", noop, fmt.Errorf("write cookie file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("close cookie file: %w", err)
	}
	return path, cleanup, nil
}
