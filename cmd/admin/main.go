package main

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"crmconsole/backend/internal/models"
	"crmconsole/backend/internal/storage"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	store := storage.NewService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  template-add <name> <category> <language> <body>")
		fmt.Println("  template-list")
		fmt.Println("  conversations")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "template-add":
		if len(os.Args) != 6 {
			fmt.Println("Usage: admin template-add <name> <category> <language> <body>")
			os.Exit(1)
		}
		tpl := &models.Template{
			Name:     os.Args[2],
			Category: os.Args[3],
			Language: os.Args[4],
			Body:     os.Args[5],
		}
		if err := store.SaveTemplate(tpl); err != nil {
			log.Fatalf("Error saving template: %v", err)
		}
		fmt.Printf("Template %s saved (variables: %v).\n", tpl.Name, tpl.Variables)

	case "template-list":
		tpls, err := store.ListTemplates()
		if err != nil {
			log.Fatalf("Error listing templates: %v", err)
		}
		for _, t := range tpls {
			fmt.Printf("%-30s %-12s %-6s %v\n", t.Name, t.Category, t.Language, t.Variables)
		}

	case "conversations":
		convs, err := store.ListConversations()
		if err != nil {
			log.Fatalf("Error listing conversations: %v", err)
		}
		for _, c := range convs {
			last := "never"
			if c.LastCustomerMessageAt != nil {
				last = c.LastCustomerMessageAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%-25s paused=%-5v last_customer=%s\n", c.SessionID, c.IsPaused, last)
		}

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}
