// Package scheduler runs background housekeeping jobs on cron schedules
// using github.com/robfig/cron/v3.
//
// Every job is named, may carry a timeout, and never overlaps with itself:
// a tick that fires while the previous run is still active is skipped.
// Panics are recovered and reported as job errors. Jobs receive a context
// that is cancelled when the scheduler stops.
//
//	s := scheduler.New(scheduler.Config{Logger: log})
//	_, err := s.Add(scheduler.Job{
//		Name:     "prune rate limiters",
//		Schedule: scheduler.Every(time.Minute),
//		Run: func(ctx context.Context) error {
//			limiter.Prune(10 * time.Minute)
//			return nil
//		},
//	})
//	s.Start()
//	defer s.Stop(context.Background())
package scheduler
