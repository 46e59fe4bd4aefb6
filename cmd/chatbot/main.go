// Console chatbot for interactive analysis of the AB testing dataset.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"liftbot/app"
	"liftbot/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Chatbot] config: %v", err)
	}

	ctx := context.Background()
	system, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("[Chatbot] bootstrap: %v", err)
	}

	fmt.Println("🤖 Chatbot de análisis AB Testing")
	fmt.Println("Escribe tu pregunta, o 'salir' para terminar.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Tú: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "salir", "exit", "quit", "q":
			fmt.Println("¡Hasta luego!")
			return
		}

		answer := system.Chat.Answer(ctx, line)
		fmt.Printf("\nBot: %s\n\n", answer)
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("[Chatbot] input: %v", err)
	}
}
