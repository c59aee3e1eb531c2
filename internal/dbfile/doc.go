// Package dbfile inspects the SQLite database files DynamoDB Local writes in
// on-disk mode, so persistence across restarts can be verified without a
// DynamoDB protocol client.
package dbfile
