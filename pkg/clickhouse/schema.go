package clickhouse

import "fmt"

// Schema returns the idempotent DDL for the given database.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.candles_1s (
            bucket DateTime,
            symbol LowCardinality(String),
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            vol Float64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMMDD(bucket)
        ORDER BY (symbol, bucket)
        TTL bucket + INTERVAL 7 DAY`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.candles_1m (
            bucket DateTime,
            symbol LowCardinality(String),
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            vol Float64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(bucket)
        ORDER BY (symbol, bucket)`, database),
		TradesDDL(database),
	}
}

// TradesDDL creates the settled trade journal table.
func TradesDDL(database string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trades (
            settled_at DateTime64(3),
            order_id String,
            symbol LowCardinality(String),
            action LowCardinality(String),
            size Float64,
            entry_price Float64,
            exit_price Float64,
            realized_pnl Float64,
            confidence Float64,
            strategy LowCardinality(String),
            balance_after Float64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(settled_at)
        ORDER BY (symbol, settled_at, order_id)`, database)
}
