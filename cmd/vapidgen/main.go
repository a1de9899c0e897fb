// vapidgen generates a VAPID key pair for web push. With -rotate it also
// clears the push subscription store: browsers subscribed under the old key
// are rejected by the push service, so rotation without clearing guarantees
// failing deliveries.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jswenson/ritual/internal/database"
	"github.com/jswenson/ritual/internal/push"
	"github.com/jswenson/ritual/internal/store"
)

func main() {
	rotate := flag.Bool("rotate", false, "clear all stored push subscriptions after generating the new pair")
	dbPath := flag.String("db", "ritual.db", "path to the database (used with -rotate)")
	flag.Parse()

	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		log.Fatalf("generate VAPID keys: %v", err)
	}

	if *rotate {
		db, err := database.Open(*dbPath)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()

		count, err := store.NewPushStore(db).DeleteAll()
		if err != nil {
			log.Fatalf("clear subscriptions: %v", err)
		}
		fmt.Printf("# cleared %d stale subscription(s)\n", count)
	}

	fmt.Printf("RITUAL_VAPID_PUBLIC_KEY=%s\n", pub)
	fmt.Printf("RITUAL_VAPID_PRIVATE_KEY=%s\n", priv)
}
