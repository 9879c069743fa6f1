// Package router selects a live upstream and establishes the TCP connection
// a client session will use. Connect failures mark the chosen upstream dead
// and routing falls over to another one until the pool is exhausted.
package router
