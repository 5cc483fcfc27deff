// Package notify publishes detected movers to Redis.
//
// Each mover is published as a JSON event on a channel and recorded in a
// per-day sorted set scored by percent change, so consumers can either
// subscribe or read the ranking later:
//
//	movers:daily:2024-06-18   ZSET ticker -> percent_change
//	movers:weekly:2024-06-21  ZSET ticker -> percent_change
package notify
