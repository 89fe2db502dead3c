// Package check contains the network-facing building blocks of mailprobe:
// the mail exchanger Resolver, the SMTP Prober and the advisory domain
// hints. These types can be used directly, but the recommended approach is
// to use the Verifier from the github.com/optimode/mailprobe package.
package check
