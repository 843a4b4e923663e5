// Package deps resolves the external binaries mediaconv shells out to.
package deps
