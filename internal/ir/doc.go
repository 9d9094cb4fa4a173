// Package ir defines the validated scene description consumed by the
// runtime. An external compiler produces it; this package only decodes
// and checks referential integrity. No simulation semantics live here.
package ir
