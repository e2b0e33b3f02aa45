// Package simpleratelimiter implements a distributed token-bucket rate
// limiter on top of a shared atomic counter store such as Redis. A bucket
// is one integer counter with a TTL, so any number of processes pointing
// at the same key share a single limit without locks. Find a runnable
// demo under cmd/.
package simpleratelimiter
