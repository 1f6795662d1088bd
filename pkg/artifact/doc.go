/*
Package artifact guards the durable summary store.

Summaries are the only state shared between concurrent turns. The Manager
serializes writes to the same frequency key, locally with reference-counted
mutexes and across replicas with an optional ports.DistributedLocker, while
writes to different keys proceed independently. The last writer wins.
*/
package artifact
