// package cache persists row-sets on disk so a data source can fall back to its last good fetch.
//
// Each key is a single file under the cache directory, overwritten wholesale through a temp file and rename.
// Writers to the same key are serialized in-process by a mutex and across processes by a "<key>.lock" file lock.
package cache
