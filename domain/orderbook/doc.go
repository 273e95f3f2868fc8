// Package orderbook implements a per-symbol limit order book: a two-sided
// price ladder of resting limit orders, a price-time priority matcher, and
// snapshot queries (top of book, depth, order-flow imbalance).
//
// Writers take the book's exclusive lock for the whole operation; readers
// share it. Callbacks fire after the lock is released.
package orderbook
