// Package audit is the asynchronous log pipeline for validation decisions.
// Events flow through a buffered Dispatcher into a caller-supplied Sink;
// the write path never blocks validation on a slow or failed sink.
package audit
