// Package storage provides the optional delivery-audit persistence layer.
//
// It records dispatch outcomes (which processor got which batch, and whether
// it succeeded) for operator inspection. Pending messages are never stored;
// a restart loses whatever has not been dispatched yet.
package storage
