// Package classpath defines the class loading capability consumed by the
// discovery selectors.
//
// A ClassLoader turns a binary class name (for example
// "org.example.Outer$Inner") into a *Class handle or fails with an error
// matching ErrClassNotFound. Loaders form a parent chain and delegate
// parent-first, the same way JVM class loaders do.
//
// Key types:
//   - ClassLoader: the loading capability
//   - Class, Method: resolved handles
//   - MemoryLoader: define-then-load registry for tests and embedding
//   - Metrics: Prometheus instrumentation for any loader
//
// The concrete source-backed loader lives in the java subpackage.
package classpath
