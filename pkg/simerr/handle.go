package simerr

import "github.com/rs/zerolog"

// Handle implements the fatal-by-default / continue-on-error policy:
// with continueOnError false, err is returned unchanged for the caller
// to exit with Kind.Code(); with it true, the error is logged as a
// warning ("Continuing...") and nil is returned so the caller proceeds.
func Handle(log *zerolog.Logger, err error, continueOnError bool) error {
	if err == nil {
		return nil
	}
	if !continueOnError {
		return err
	}
	log.Warn().Err(err).Msg("Continuing...")
	return nil
}
