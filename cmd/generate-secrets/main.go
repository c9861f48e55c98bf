package main

import (
	"fmt"
	"log"

	"github.com/deskhub/facility-backend/internal/utils"
	"github.com/spf13/pflag"
)

func main() {
	bytes := pflag.IntP("bytes", "b", 64, "number of random bytes in the secret")
	pflag.Parse()

	if *bytes < 32 {
		log.Fatalf("refusing to generate a secret shorter than 32 bytes (got %d)", *bytes)
	}

	secret, err := utils.GenerateSecret(*bytes)
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	fmt.Println("Add this to your .env file or secret store:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Println()
	fmt.Println("Keep this secret out of version control.")
}
