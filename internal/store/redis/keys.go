package redis

import "fmt"

const (
	// KeyPrefixOrder is the prefix for order keys
	KeyPrefixOrder = "panelshop:order:"
	// KeyAllOrders is the sorted set of order tokens scored by creation time
	KeyAllOrders = "panelshop:orders:all"
	// KeyPackages holds the package list as one JSON document
	KeyPackages = "panelshop:packages"
)

// OrderKey returns the Redis key for an order by token
func OrderKey(token string) string {
	return KeyPrefixOrder + token
}

// AllOrdersKey returns the key of the order index
func AllOrdersKey() string {
	return KeyAllOrders
}

// PackagesKey returns the key of the package document
func PackagesKey() string {
	return KeyPackages
}

// ExtractToken extracts the order token from a Redis key
func ExtractToken(key string) (string, error) {
	if len(key) <= len(KeyPrefixOrder) || key[:len(KeyPrefixOrder)] != KeyPrefixOrder {
		return "", fmt.Errorf("invalid order key: %s", key)
	}
	return key[len(KeyPrefixOrder):], nil
}
