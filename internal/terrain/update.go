package terrain

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/depthmesh/internal/logger"
	"github.com/Faultbox/depthmesh/internal/terrain/contour"
)

// SetReferenceElevation moves the waterline. Colors and visible triangles are
// re-derived together, vertex heights follow when displaced on the CPU, and
// contours are regenerated when they are kept in sync and the vertex budget
// has not blocked them. On error nothing changes.
func (m *Model) SetReferenceElevation(ctx context.Context, ref float64) error {
	if math.IsNaN(ref) || math.IsInf(ref, 0) {
		return fmt.Errorf("%w: reference elevation %v", ErrInvalidInput, ref)
	}

	m.updateMu.Lock()
	defer m.updateMu.Unlock()
	if !m.built {
		return ErrNotBuilt
	}

	lv := m.levelsFor(ref, m.zExag)
	d, err := m.derive(ctx, m.geom, lv)
	if err != nil {
		return err
	}

	var res contour.Result
	syncContours := m.syncContours()
	if syncContours {
		if res, err = m.traceContours(ctx, m.geom, ref, lv.HeightScale, m.interval); err != nil {
			return err
		}
	}

	m.stateMu.Lock()
	m.reference, m.depthSpan = ref, lv.Depth
	m.commit(d)
	if syncContours {
		m.contours, m.budgetExceeded = res, res.Aborted
	}
	m.stateMu.Unlock()

	logger.Named("terrain").Debug("reference elevation updated",
		zap.Float64("reference", ref),
		zap.Float64("max_depth", lv.Depth.Max),
		zap.Bool("contours", syncContours),
		zap.Int("visible", len(d.indices)/3))
	return nil
}

// syncContours reports whether a state change should regenerate contours.
func (m *Model) syncContours() bool {
	if !m.opts.ContoursEnabled || !m.opts.ContourKeepInSync {
		return false
	}
	if m.budgetExceeded {
		logger.Named("terrain").Debug("contour regeneration skipped, vertex budget exceeded",
			zap.Float64("interval", m.interval))
		return false
	}
	return true
}

// SetZExaggeration clamps v to [MinZExaggeration, MaxZExaggeration] and
// updates the height scale. It returns the value applied.
func (m *Model) SetZExaggeration(ctx context.Context, v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: z exaggeration is NaN", ErrInvalidInput)
	}
	v = clampExaggeration(v)

	m.updateMu.Lock()
	defer m.updateMu.Unlock()
	if !m.built {
		return 0, ErrNotBuilt
	}

	lv := m.levelsFor(m.reference, v)

	var err error
	geom, normals := m.geom, m.normals
	if m.opts.CPUDisplacement {
		if geom, normals, err = m.displace(ctx, m.geom, lv); err != nil {
			return 0, err
		}
	}

	var res contour.Result
	syncContours := m.syncContours()
	if syncContours {
		if res, err = m.traceContours(ctx, geom, m.reference, lv.HeightScale, m.interval); err != nil {
			return 0, err
		}
	}

	m.stateMu.Lock()
	m.zExag = v
	m.geom, m.normals = geom, normals
	if syncContours {
		m.contours, m.budgetExceeded = res, res.Aborted
	}
	m.stateMu.Unlock()
	return v, nil
}

// SetContourInterval changes the contour spacing, clears a previous budget
// block and regenerates contours.
func (m *Model) SetContourInterval(ctx context.Context, interval float64) error {
	if !(interval > 0) || math.IsInf(interval, 0) {
		return fmt.Errorf("%w: contour interval %v", ErrInvalidInput, interval)
	}

	m.updateMu.Lock()
	defer m.updateMu.Unlock()
	if !m.built {
		return ErrNotBuilt
	}
	return m.regenerateContours(ctx, interval)
}

// GenerateContours traces contours for the current state regardless of the
// sync setting and returns the result. An Aborted result blocks automatic
// regeneration until the interval changes.
func (m *Model) GenerateContours(ctx context.Context) (contour.Result, error) {
	m.updateMu.Lock()
	defer m.updateMu.Unlock()
	if !m.built {
		return contour.Result{}, ErrNotBuilt
	}
	if !(m.interval > 0) {
		return contour.Result{}, fmt.Errorf("%w: contour interval %v", ErrInvalidInput, m.interval)
	}

	if err := m.regenerateContours(ctx, m.interval); err != nil {
		return contour.Result{}, err
	}
	return m.contours, nil
}
