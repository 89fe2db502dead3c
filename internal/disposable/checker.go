// Package disposable recognises throwaway mailbox providers.
package disposable

import "strings"

// IsDisposable reports whether domain, or any parent domain of it, is a
// known disposable provider. "x.mailinator.com" matches "mailinator.com".
func IsDisposable(domain string) bool {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	for domain != "" {
		if _, ok := disposableSet[domain]; ok {
			return true
		}
		dot := strings.IndexByte(domain, '.')
		if dot < 0 {
			return false
		}
		domain = domain[dot+1:]
	}
	return false
}

// Len returns the number of domains on the list.
func Len() int { return len(disposableSet) }
