// Package dataset provides the immutable table model consumed by the
// imputation engine.
//
// A Dataset is a fixed set of equally sized columns. Each column carries a
// declared element kind (numeric or categorical) and a missingness mask backed
// by a Roaring Bitmap. The engine never mutates a Dataset; imputed values live
// outside the table and are substituted into completed views on demand.
//
// Columns expose their values in model space: numeric columns as raw float64
// values, categorical columns as integer level codes. Donor-based imputation
// guarantees that imputed model-space values are always observed model-space
// values, so decoding a code back to its level can never fail.
package dataset
