// package fetch coordinates fetching one tabular data source at a time.
//
// A [Coordinator] fetches rows from a [Provider], drops rows unknown to a [Reference], writes the result to the
// disk cache and publishes it to a [Consumer]. When the remote has nothing to offer it falls back to the cached copy,
// or to a retry placeholder when there is none.
//
// Coordinators run their fetches on their own goroutine and hand every observable change to a [Dispatcher], which
// runs it on the goroutine that owns the consumer.
package fetch
