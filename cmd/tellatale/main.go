package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// Best effort; the API key may come from the real environment instead.
	_ = godotenv.Load()
	Execute()
}
