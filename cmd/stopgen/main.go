package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	brokers  = flag.String("brokers", "localhost:9092", "Comma-separated Kafka broker addresses")
	topic    = flag.String("topic", "stop-records", "Kafka topic to write records to")
	count    = flag.Int("count", 1000, "Number of stop records to generate")
	startDay = flag.String("start", "2024-01-01", "First day of generated entry times (YYYY-MM-DD)")
	days     = flag.Int("days", 7, "Number of days to spread entries across")
	seed     = flag.Int64("seed", 0, "Random seed (0 uses current time)")
)

// Wire shape expected by the occulens Kafka collector.
type stopMessage struct {
	Entry    string   `json:"entry"`
	Exit     string   `json:"exit"`
	Category string   `json:"category,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
}

func main() {
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDay)
	if err != nil {
		log.Fatalf("Invalid -start value %q: %v", *startDay, err)
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Fatalf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Generating %d stop records for topic %s on %s", *count, *topic, *brokers)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		log.Println("Shutdown signal received, stopping generator...")
		cancel()
	}()

	seedVal := *seed
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedVal))

	produced := 0
	for produced < *count {
		msg := generateStopMessage(rng, start, *days)
		msgBytes, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Error marshalling message: %v", err)
			continue
		}

		err = writer.WriteMessages(ctx, kafka.Message{Value: msgBytes})
		if err != nil {
			if ctx.Err() != nil { // Check if context was cancelled (shutdown)
				log.Println("Context cancelled, exiting message loop.")
				return
			}
			log.Printf("Error writing message: %v", err)
			continue
		}
		produced++
	}
	log.Printf("Produced %d stop records.", produced)
}

// Generates a stop record with time-of-day arrival clustering, lognormal-ish
// stay lengths, and occasional dirty rows to exercise downstream filtering.
func generateStopMessage(rng *rand.Rand, start time.Time, days int) stopMessage {
	day := rng.Intn(days)

	// Cluster entries around late morning, wrapped into [0, 24h).
	hour := 11.0 + rng.NormFloat64()*4.0
	for hour < 0 {
		hour += 24
	}
	for hour >= 24 {
		hour -= 24
	}
	entry := start.AddDate(0, 0, day).Add(time.Duration(hour * float64(time.Hour)))

	// Stay lengths average ~3.5h with a long right tail.
	stayMinutes := 30 + rng.ExpFloat64()*180
	if stayMinutes > 48*60 {
		stayMinutes = 48 * 60
	}
	exit := entry.Add(time.Duration(stayMinutes * float64(time.Minute)))

	categories := []string{"ICU", "IVT", "MED", "SURG", "OBS"}
	msg := stopMessage{
		Entry:    entry.Format("2006-01-02 15:04:05"),
		Exit:     exit.Format("2006-01-02 15:04:05"),
		Category: categories[rng.Intn(len(categories))],
	}

	// ~10% of records carry an explicit non-unit weight.
	if rng.Float64() < 0.1 {
		w := 1.0 + rng.Float64()
		msg.Weight = &w
	}

	// ~2% dirty rows: blank exit timestamp.
	if rng.Float64() < 0.02 {
		msg.Exit = ""
	}

	return msg
}
