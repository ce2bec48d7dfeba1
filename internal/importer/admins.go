package importer

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docfiling/internal/apperr"
	"docfiling/internal/metrics"
	"docfiling/internal/model"
)

// ImportAdmins upserts every username in admins.csv. An optional full_name
// column fills in display names.
func (im *Importer) ImportAdmins(ctx context.Context, src Source) (*AdminReport, error) {
	t, err := openTable(src, "username")
	if err != nil {
		return nil, err
	}

	rep := &AdminReport{}
	log := im.log.WithField("stream", StreamAdmins)
	now := im.now().UTC()
	seen := map[string]struct{}{}
	var admins []model.Admin

	err = eachRow(t, &rep.Skipped, log, func(rec record) {
		username := rec.get("username")
		if username == "" {
			rep.Skipped++
			return
		}
		if _, dup := seen[username]; dup {
			rep.Duplicates++
			return
		}
		seen[username] = struct{}{}
		admins = append(admins, model.Admin{
			ID:          uuid.NewString(),
			Username:    username,
			FullName:    rec.get("full_name"),
			CreatedDate: now,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return rep, apperr.New(apperr.KindInvalidInput, "no admins could be processed, check the CSV file")
	}

	for start := 0; start < len(admins); start += im.chunkSize {
		end := min(start+im.chunkSize, len(admins))
		if _, err := im.admins.UpsertMany(ctx, admins[start:end]); err != nil {
			rep.Failed += end - start
			log.WithError(err).WithField("rows", end-start).Error("import_chunk_failed")
			continue
		}
		rep.Processed += end - start
	}
	im.onAdmins()

	im.metrics.ImportRows(StreamAdmins, metrics.OutcomeInserted, rep.Processed)
	im.metrics.ImportRows(StreamAdmins, metrics.OutcomeSkipped, rep.Skipped)
	im.metrics.ImportRows(StreamAdmins, metrics.OutcomeDuplicate, rep.Duplicates)
	im.metrics.ImportRows(StreamAdmins, metrics.OutcomeFailed, rep.Failed)

	log.WithFields(logrus.Fields{
		"processed":  rep.Processed,
		"skipped":    rep.Skipped,
		"duplicates": rep.Duplicates,
		"failed":     rep.Failed,
	}).Info("import_finished")
	return rep, nil
}
