// Package domain contains the shared domain types of the example service:
// sentinel errors, validation types, and the demo User entity. The request
// logging core lives in the reqlog sub-package.
package domain
