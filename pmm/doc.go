// Package pmm implements predictive mean matching, the conditional model
// behind the imputation engine.
//
// For one column and one imputation copy, pmm fits an ordinary least squares
// model of the column on its predictors using the rows where the column is
// observed, predicts values for both observed and missing rows, and then
// replaces each missing row's prediction with the observed value of a nearby
// donor: one of the k observed rows whose prediction is closest to the missing
// row's prediction, drawn uniformly at random. Because the imputed value is
// always an observed value of the same column, pmm preserves the empirical
// distribution of the variable and can never invent out-of-range values.
package pmm
